package funcs

import (
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

var TemplateFuncs = template.FuncMap{
	"formatTime":   formatTime,
	"formatAmount": formatAmount,
	"upper":        strings.ToUpper,
	"lower":        strings.ToLower,
}

func formatTime(t time.Time) string {
	return t.UTC().Format("02 Jan 2006 at 15:04 UTC")
}

func formatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}
