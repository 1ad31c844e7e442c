package arena

import "github.com/dustin/go-humanize"

// humanizeStats renders a Stats value the way the rest of this module logs
// byte counts: "12 chunks, 3.2 kB/4.0 kB used".
func humanizeStats(s Stats) string {
	return humanize.Comma(int64(s.Chunks)) + " chunks, " +
		humanize.Bytes(uint64(s.Used)) + "/" + humanize.Bytes(uint64(s.Allocated)) + " used"
}
