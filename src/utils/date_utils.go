package utils

import "fmt"

// NoData is the placeholder the gateway shows for muted values.
const NoData = "--"

// FormatMDY joins backend month, day and year parts as "M/D/Y".
func FormatMDY(month, day, year any) string {
	return fmt.Sprintf("%v/%v/%v", month, day, year)
}

// FormatMDYOrNoData is FormatMDY with the all-zero date shown as NoData.
func FormatMDYOrNoData(month, day, year any) string {
	s := FormatMDY(month, day, year)
	if s == "0/0/0" {
		return NoData
	}
	return s
}
