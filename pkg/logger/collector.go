package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Publisher receives the aggregated log batch as JSON.
type Publisher interface {
	PublishMessage(ctx context.Context, key string, payload []byte) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // periodic flush; 0 flushes only on demand and on Close
	CountThreshold int           // unique entries that force a flush; 0 disables
	Key            string        // message key of the published batch
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector folds repeated warn/error lines into one entry with a count.
type LogCollector struct {
	config *CollectionConfig
	logMap map[string]*AggregatedLogEntry
	mutex  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	ctx, cancel := context.WithCancel(context.Background())

	collector := &LogCollector{
		config: config,
		logMap: make(map[string]*AggregatedLogEntry),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}

	if config.TimeInterval > 0 {
		collector.wg.Add(1)
		go collector.periodicFlush()
	}

	return collector
}

func (d *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := d.now()
	key := d.generateKey(level, message, fields, caller)

	d.mutex.Lock()
	if entry, exists := d.logMap[key]; exists {
		entry.Count++
		entry.LastSeen = now
	} else {
		d.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch []AggregatedLogEntry
	if d.config.CountThreshold > 0 && len(d.logMap) >= d.config.CountThreshold {
		batch = d.drainLocked()
	}
	d.mutex.Unlock()

	if batch != nil {
		go d.publish(context.Background(), batch)
	}
}

func (d *LogCollector) generateKey(level, message string, fields map[string]interface{}, caller string) string {
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
	}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}

// Snapshot returns the pending entries, oldest first, without draining them.
func (d *LogCollector) Snapshot() []AggregatedLogEntry {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	out := make([]AggregatedLogEntry, 0, len(d.logMap))
	for _, e := range d.logMap {
		out = append(out, *e)
	}
	sortEntries(out)
	return out
}

// Flush drains the pending entries and publishes them synchronously.
func (d *LogCollector) Flush(ctx context.Context) error {
	d.mutex.Lock()
	batch := d.drainLocked()
	d.mutex.Unlock()
	if len(batch) == 0 {
		return nil
	}
	return d.publish(ctx, batch)
}

func (d *LogCollector) periodicFlush() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = d.Flush(d.ctx)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *LogCollector) drainLocked() []AggregatedLogEntry {
	if len(d.logMap) == 0 {
		return nil
	}
	logs := make([]AggregatedLogEntry, 0, len(d.logMap))
	for _, entry := range d.logMap {
		logs = append(logs, *entry)
	}
	d.logMap = make(map[string]*AggregatedLogEntry)
	sortEntries(logs)
	return logs
}

func (d *LogCollector) publish(ctx context.Context, logs []AggregatedLogEntry) error {
	if d.config.Publisher == nil {
		return nil
	}
	payload, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("marshal aggregated logs: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := d.config.Publisher.PublishMessage(ctx, d.config.Key, payload); err != nil {
		return fmt.Errorf("publish aggregated logs: %w", err)
	}
	return nil
}

// Close stops the periodic flush and publishes what is left.
func (d *LogCollector) Close() {
	d.cancel()
	d.wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = d.Flush(ctx)
}

func sortEntries(logs []AggregatedLogEntry) {
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].FirstSeen.Equal(logs[j].FirstSeen) {
			return logs[i].FirstSeen.Before(logs[j].FirstSeen)
		}
		return logs[i].Message < logs[j].Message
	})
}
