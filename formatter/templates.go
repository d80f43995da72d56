package formatter

type EquivalentFormatter struct{}

func (f *EquivalentFormatter) ResultTemplate() string {
	return `{{header .Severity .Label .Filename .Bound .Attempts .Cached -}}
{{message .Message .Padding -}}
{{ir .IR .Padding}}
`
}

type CounterexampleFormatter struct{}

func (f *CounterexampleFormatter) ResultTemplate() string {
	return `{{header .Severity .Label .Filename .Bound .Attempts .Cached -}}
{{message .Message .Padding -}}
{{divergences .Divergences .Padding -}}
{{inputs .Inputs .Padding -}}
{{ir .IR .Padding}}
`
}

type BoundExhaustedFormatter struct{}

func (f *BoundExhaustedFormatter) ResultTemplate() string {
	return `{{header .Severity .Label .Filename .Bound .Attempts .Cached -}}
{{message .Message .Padding}}
`
}

type FailureFormatter struct{}

func (f *FailureFormatter) ResultTemplate() string {
	return `{{header .Severity .Label .Filename .Bound .Attempts .Cached -}}
{{message .Message .Padding}}
`
}
