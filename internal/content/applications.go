package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"summit/internal/backend"
)

// ApplicationKind selects one of the two status-tracked submission tables.
type ApplicationKind string

const (
	KindMentorship ApplicationKind = "mentorship"
	KindAward      ApplicationKind = "award"
)

// ErrUnknownKind is returned for kinds other than mentorship and award.
var ErrUnknownKind = errors.New("unknown application kind")

// ParseApplicationKind accepts the kind names and their table names.
func ParseApplicationKind(s string) (ApplicationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mentorship", backend.TableMentorshipApplications:
		return KindMentorship, nil
	case "award", "awards", backend.TableAwardNominations:
		return KindAward, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Table is the backend table holding this kind.
func (k ApplicationKind) Table() string {
	if k == KindAward {
		return backend.TableAwardNominations
	}
	return backend.TableMentorshipApplications
}

// Title is the admin heading for this kind.
func (k ApplicationKind) Title() string {
	if k == KindAward {
		return "Award Nominations"
	}
	return "Mentorship Applications"
}

// Application is a mentorship application or award nomination. Only Status is
// managed by the site; the remaining submitted columns are carried in Fields.
type Application struct {
	ID        ID
	Status    string
	CreatedAt string
	Fields    map[string]any
}

// FieldNames returns the keys of Fields in a stable order.
func (a Application) FieldNames() []string {
	names := make([]string, 0, len(a.Fields))
	for name := range a.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func applicationFromRow(row backend.Row) Application {
	app := Application{
		ID:     ID(backend.RowID(row)),
		Fields: make(map[string]any, len(row)),
	}
	for k, v := range row {
		switch k {
		case backend.ColumnID:
		case "status":
			if v != nil {
				app.Status = fmt.Sprint(v)
			}
		case backend.ColumnCreatedAt:
			if v != nil {
				app.CreatedAt = fmt.Sprint(v)
			}
		default:
			app.Fields[k] = v
		}
	}
	return app
}
