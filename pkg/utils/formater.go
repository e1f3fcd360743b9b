package utils

import "strconv"

// FmtMem renders a byte count as a compact human-readable string (e.g. "1MB 24KB 3B").
func FmtMem(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	b := bytes
	if b < 0 {
		return "-" + FmtMem(-b)
	}
	switch {
	case b >= GB:
		rem := b % GB
		return strconv.FormatInt(b/GB, 10) + "GB " +
			strconv.FormatInt(rem/MB, 10) + "MB " +
			strconv.FormatInt((rem%MB)/KB, 10) + "KB"
	case b >= MB:
		rem := b % MB
		return strconv.FormatInt(b/MB, 10) + "MB " +
			strconv.FormatInt(rem/KB, 10) + "KB " +
			strconv.FormatInt(rem%KB, 10) + "B"
	case b >= KB:
		return strconv.FormatInt(b/KB, 10) + "KB " +
			strconv.FormatInt(b%KB, 10) + "B"
	default:
		return strconv.FormatInt(b, 10) + "B"
	}
}
