package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Kitrop/workflow/internal/domain"
)

// windowFlags are the --from/--to report bounds.
type windowFlags struct {
	from string
	to   string
}

func (w *windowFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&w.from, "from", "", "window start (YYYY-MM-DD, inclusive)")
	fs.StringVar(&w.to, "to", "", "window end (YYYY-MM-DD, inclusive)")
}

func (w *windowFlags) window() (domain.DateWindow, error) {
	return domain.NewDateWindow(w.from, w.to)
}

// parseExtra reads key=value. Values that parse as JSON scalars keep their
// type (sp=3 is a number); anything else is a string.
func parseExtra(pairs []string) (domain.ExtraFields, error) {
	out := domain.ExtraFields{}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, domain.Validationf("extra %q: expected key=value", kv)
		}
		var val domain.Value
		if err := json.Unmarshal([]byte(v), &val); err != nil || val.Kind == domain.KindRaw {
			val = domain.String(v)
		}
		out[k] = val
	}
	return out, nil
}

// parsePeriod reads type:start:end[:tester].
func parsePeriod(s string) (domain.Period, string, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return domain.Period{}, "", domain.Validationf("period %q: expected type:start:end[:tester]", s)
	}
	start, err := domain.ParseDate(parts[1])
	if err != nil {
		return domain.Period{}, "", err
	}
	end, err := domain.ParseDate(parts[2])
	if err != nil {
		return domain.Period{}, "", err
	}
	tester := ""
	if len(parts) == 4 {
		tester = parts[3]
	}
	return domain.Period{Type: domain.PeriodType(strings.ToLower(parts[0])), Start: start, End: end}, tester, nil
}

// parseReview reads reviewer:date.
func parseReview(s string) (string, domain.Review, error) {
	reviewer, date, ok := strings.Cut(s, ":")
	if !ok || reviewer == "" {
		return "", domain.Review{}, domain.Validationf("review %q: expected reviewer:date", s)
	}
	d, err := domain.ParseDate(date)
	if err != nil {
		return "", domain.Review{}, err
	}
	return reviewer, domain.Review{ReviewDate: d}, nil
}
