package mastery

// TrendLabel maps a trend to the short label shown to teachers.
func TrendLabel(t Trend) string {
	switch t {
	case TrendNew:
		return "Not enough evidence"
	case TrendDeveloping:
		return "Developing"
	case TrendImproving:
		return "Improving"
	case TrendDeclining:
		return "Needs review"
	case TrendSecure:
		return "Secure"
	default:
		return "Unknown"
	}
}

// RecentString renders the rolling window as check marks and crosses,
// oldest first.
func RecentString(recent []bool) string {
	b := make([]rune, len(recent))
	for i, ok := range recent {
		if ok {
			b[i] = '✓'
		} else {
			b[i] = '✗'
		}
	}
	return string(b)
}
