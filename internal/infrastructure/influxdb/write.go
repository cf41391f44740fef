package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteOccupancy records the current number of live retimer handles.
//
// Written after every attach and detach, this produces a time series
// of identifier-space occupancy. The write is non-blocking; data is
// batched and sent asynchronously.
func (c *Client) WriteOccupancy(live int, capacity int) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"live": live,
	}
	if capacity > 0 {
		fields["capacity"] = capacity
	}

	point := write.NewPoint(
		"registry_occupancy",
		map[string]string{},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLifecycle records a single attach or detach transition.
//
// The handle name is a tag so per-handle churn can be queried directly.
//
// Example:
//
//	client.WriteLifecycle("attached", "retimer0", "/soc/serdes@fd3c0000")
func (c *Client) WriteLifecycle(action string, handleName string, parentNode string) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"action": action,
		"handle": handleName,
	}
	if parentNode != "" {
		tags["parent_node"] = parentNode
	}

	point := write.NewPoint(
		"registry_lifecycle",
		tags,
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., replayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
