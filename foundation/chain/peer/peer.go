// Package peer maintains the directory of known peer nodes and when each
// was last seen.
package peer

import (
	"sort"
	"time"
)

// Record represents what is known about a single peer node.
type Record struct {
	URL      string    `json:"url"`
	LastSeen time.Time `json:"last_seen"`
}

// Directory represents the set of peer nodes this node has ever learned of.
// Records are refreshed on every sighting and never pruned, dead peers are
// retried until the process restarts. The directory performs no locking of
// its own, all access must be funneled through a single goroutine.
type Directory struct {
	records map[string]Record
}

// NewDirectory constructs a directory to manage peer records.
func NewDirectory() *Directory {
	return &Directory{
		records: make(map[string]Record),
	}
}

// Upsert adds the url to the directory or refreshes its last-seen time.
// It reports whether the url was newly added.
func (d *Directory) Upsert(url string) bool {
	_, exists := d.records[url]

	d.records[url] = Record{
		URL:      url,
		LastSeen: time.Now().UTC(),
	}

	return !exists
}

// URLs returns the known peer urls in a stable order.
func (d *Directory) URLs() []string {
	urls := make([]string, 0, len(d.records))
	for url := range d.records {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	return urls
}

// Copy returns the known peer records in a stable order.
func (d *Directory) Copy() []Record {
	records := make([]Record, 0, len(d.records))
	for _, record := range d.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].URL < records[j].URL })

	return records
}

// Count returns the number of known peers.
func (d *Directory) Count() int {
	return len(d.records)
}
