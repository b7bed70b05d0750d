// Package units renders simulator quantities for people. Memory units are
// kilobytes throughout.
package units

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/constraints"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Number formats n with thousands separators.
func Number[T constraints.Integer](n T) string {
	return printer.Sprintf("%d", n)
}

// Size formats a size given in kilobytes, e.g. "130 KiB" or "1.0 MiB".
func Size(kb int) string {
	if kb < 0 {
		return "-" + humanize.IBytes(uint64(-kb)*1024)
	}
	return humanize.IBytes(uint64(kb) * 1024)
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent[T constraints.Integer | constraints.Float](part, whole T) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// FormatPercent formats p with one decimal place.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Address formats a memory address as four or more hex digits.
func Address(addr int) string {
	return fmt.Sprintf("0x%04X", addr)
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(hi, v))
}
