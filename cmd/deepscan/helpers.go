package main

import "fmt"

func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}
