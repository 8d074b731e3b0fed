package platform

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Disk is one entry of the disk section of a snapshot.
type Disk struct {
	Path   string   `json:"path" yaml:"path"`
	Size   DiskSize `json:"size" yaml:"size"`
	FSType string   `json:"fstype,omitempty" yaml:"fstype,omitempty"`
	Inodes Inodes   `json:"inodes" yaml:"inodes"`
}

// DiskSize is the space usage of a mount, in bytes.
//
// Unix encodes it as ["<total>", "<used>", "<avail>", "<pct>%"] with
// human-readable sizes; Windows encodes it as an object of numbers.
type DiskSize struct {
	Total   uint64
	Used    uint64
	Free    uint64
	Percent float64
	Human   bool
}

type diskSizeObject struct {
	Total   uint64  `json:"total" yaml:"total"`
	Used    uint64  `json:"used" yaml:"used"`
	Free    uint64  `json:"free" yaml:"free"`
	Percent float64 `json:"percent" yaml:"percent"`
}

func (s DiskSize) encoded() any {
	if s.Human {
		return []string{
			humanize.IBytes(s.Total),
			humanize.IBytes(s.Used),
			humanize.IBytes(s.Free),
			percentString(s.Percent),
		}
	}
	return diskSizeObject{Total: s.Total, Used: s.Used, Free: s.Free, Percent: s.Percent}
}

// MarshalJSON implements json.Marshaler.
func (s DiskSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.encoded())
}

// MarshalYAML implements yaml.Marshaler.
func (s DiskSize) MarshalYAML() (any, error) {
	return s.encoded(), nil
}

// Inodes is the inode usage of a mount. Filesystems without inodes encode
// as false.
type Inodes struct {
	Total     uint64
	Used      uint64
	Free      uint64
	Percent   float64
	Supported bool
}

func (i Inodes) encoded() any {
	if !i.Supported {
		return false
	}
	return []string{
		strconv.FormatUint(i.Total, 10),
		strconv.FormatUint(i.Used, 10),
		strconv.FormatUint(i.Free, 10),
		percentString(i.Percent),
	}
}

// MarshalJSON implements json.Marshaler.
func (i Inodes) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.encoded())
}

// MarshalYAML implements yaml.Marshaler.
func (i Inodes) MarshalYAML() (any, error) {
	return i.encoded(), nil
}

// percentString rounds up like df does.
func percentString(p float64) string {
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	return fmt.Sprintf("%d%%", int(math.Ceil(p)))
}
