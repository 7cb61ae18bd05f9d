package analyzer

// Options holds the windows and thresholds used by the dashboard analytics.
// A zero or negative field falls back to its DefaultOptions value.
type Options struct {
	// SummaryWindow is how many of the most recent sessions feed the
	// criterion averages and the weakest/strongest detection.
	SummaryWindow int `json:"summary_window"`

	// TrendWindow is how many of the most recent sessions feed trend detection.
	TrendWindow int `json:"trend_window"`

	// MinTrendPoints is the minimum number of scores needed to call a trend.
	MinTrendPoints int `json:"min_trend_points"`

	// ErrorWindow is how many of the most recent sessions feed the
	// recurring-error ranking.
	ErrorWindow int `json:"error_window"`

	// TopErrors caps the number of ranked recurring errors.
	TopErrors int `json:"top_errors"`

	// FrequentErrorPercent is the share of qualifying sessions (0-100) at
	// which an error is flagged as frequent.
	FrequentErrorPercent float64 `json:"frequent_error_percent"`

	// SeriesWindow is how many sessions the progress chart shows.
	SeriesWindow int `json:"series_window"`

	// ObjectionsWarningBelow raises the objections warning when the
	// objections average is strictly below it.
	ObjectionsWarningBelow int `json:"objections_warning_below"`

	// PlateauScore and ExcellenceScore split the last session score into
	// the low/mid/high buckets used for message selection.
	PlateauScore    int `json:"plateau_score"`
	ExcellenceScore int `json:"excellence_score"`
}

// DefaultOptions returns the standard dashboard settings.
func DefaultOptions() Options {
	return Options{
		SummaryWindow:          5,
		TrendWindow:            5,
		MinTrendPoints:         3,
		ErrorWindow:            5,
		TopErrors:              5,
		FrequentErrorPercent:   60,
		SeriesWindow:           10,
		ObjectionsWarningBelow: 60,
		PlateauScore:           70,
		ExcellenceScore:        80,
	}
}

// WithDefaults replaces every zero or negative field with its default.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.SummaryWindow <= 0 {
		o.SummaryWindow = d.SummaryWindow
	}
	if o.TrendWindow <= 0 {
		o.TrendWindow = d.TrendWindow
	}
	if o.MinTrendPoints <= 0 {
		o.MinTrendPoints = d.MinTrendPoints
	}
	if o.ErrorWindow <= 0 {
		o.ErrorWindow = d.ErrorWindow
	}
	if o.TopErrors <= 0 {
		o.TopErrors = d.TopErrors
	}
	if o.FrequentErrorPercent <= 0 {
		o.FrequentErrorPercent = d.FrequentErrorPercent
	}
	if o.SeriesWindow <= 0 {
		o.SeriesWindow = d.SeriesWindow
	}
	if o.ObjectionsWarningBelow <= 0 {
		o.ObjectionsWarningBelow = d.ObjectionsWarningBelow
	}
	if o.PlateauScore <= 0 {
		o.PlateauScore = d.PlateauScore
	}
	if o.ExcellenceScore <= 0 {
		o.ExcellenceScore = d.ExcellenceScore
	}
	return o
}
