package patient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
)

var dialect = goqu.Dialect("postgres")

var summaryColumns = []any{
	goqu.I("p.id"),
	goqu.I("p.first_name"),
	goqu.I("p.last_name"),
	goqu.I("p.date_of_birth"),
	goqu.I("p.email"),
	goqu.I("p.phone"),
	goqu.I("p.status"),
	goqu.I("p.last_visit"),
	goqu.I("p.blood_type"),
	goqu.I("p.insurance_provider"),
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// jsonArray renders a one-element JSON array for JSONB containment.
func jsonArray(s string) string {
	b, _ := json.Marshal([]string{s})
	return string(b)
}

func anyILike(col string, terms []string) exp.Expression {
	ors := make([]exp.Expression, 0, len(terms))
	for _, t := range terms {
		ors = append(ors, goqu.I(col).ILike(containsPattern(t)))
	}
	return goqu.Or(ors...)
}

// conditions returns the WHERE clauses for q, with last-visit buckets
// measured back from today.
func (q ListQuery) conditions(today time.Time) []exp.Expression {
	var where []exp.Expression

	if q.Search != "" {
		pattern := containsPattern(q.Search)
		where = append(where, goqu.Or(
			goqu.I("p.first_name").ILike(pattern),
			goqu.I("p.last_name").ILike(pattern),
			goqu.I("p.email").ILike(pattern),
			goqu.I("p.phone").ILike(pattern),
			goqu.L(`("p"."first_name" || ' ' || "p"."last_name") ILIKE ?`, pattern),
		))
	}
	if q.Status != "" {
		where = append(where, goqu.I("p.status").Eq(q.Status))
	}
	if q.BloodType != "" {
		where = append(where, goqu.I("p.blood_type").Eq(q.BloodType))
	}
	if q.City != "" {
		where = append(where, goqu.I("p.address_city").ILike(containsPattern(q.City)))
	}
	if q.State != "" {
		where = append(where, goqu.I("p.address_state").ILike(containsPattern(q.State)))
	}
	if len(q.InsuranceProviders) > 0 {
		where = append(where, anyILike("p.insurance_provider", q.InsuranceProviders))
	}
	if q.Allergy != "" {
		where = append(where, goqu.L(`"p"."allergies" @> ?::jsonb`, jsonArray(q.Allergy)))
	}
	if len(q.Conditions) > 0 {
		ors := make([]exp.Expression, 0, len(q.Conditions))
		for _, c := range q.Conditions {
			ors = append(ors, goqu.L(`"p"."conditions" @> ?::jsonb`, jsonArray(c)))
		}
		where = append(where, goqu.Or(ors...))
	}
	if len(q.Medications) > 0 {
		// Semi-join: a patient with several matching rows still appears once.
		active := dialect.From(goqu.T("medications").As("m")).
			Prepared(true).
			Select(goqu.I("m.patient_id")).
			Where(
				goqu.I("m.is_active").IsTrue(),
				anyILike("m.name", q.Medications),
			)
		where = append(where, goqu.I("p.id").In(active))
	}
	if q.LastVisit != "" {
		if days, ok := lastVisitDays[q.LastVisit]; ok {
			where = append(where, goqu.I("p.last_visit").Gte(today.AddDate(0, 0, -days)))
		} else if q.LastVisit == LastVisitOverAYear {
			where = append(where, goqu.I("p.last_visit").Lt(today.AddDate(0, 0, -overAYearDays)))
		}
	}

	return where
}

func (q ListQuery) filtered(today time.Time) *goqu.SelectDataset {
	ds := dialect.From(goqu.T("patients").As("p")).Prepared(true)
	if where := q.conditions(today); len(where) > 0 {
		ds = ds.Where(where...)
	}
	return ds
}

// CountSQL renders the total-match count over the filtered set.
func (q ListQuery) CountSQL(today time.Time) (string, []any, error) {
	return q.filtered(today).Select(goqu.COUNT(goqu.Star())).ToSQL()
}

// PageSQL renders one sorted page of list-view summaries.
func (q ListQuery) PageSQL(today time.Time) (string, []any, error) {
	col := goqu.I("p." + q.SortColumn())
	order := col.Desc()
	if !q.SortDesc {
		order = col.Asc()
	}
	return q.filtered(today).
		Select(summaryColumns...).
		Order(order).
		Limit(uint(q.Page.PageSize)).
		Offset(uint(q.Page.Offset())).
		ToSQL()
}

// today truncates now to its UTC calendar date.
func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UpdateSQL renders a partial update of the given columns plus an
// updated_at bump that never moves backwards.
func UpdateSQL(id string, ch Changes, now time.Time) (string, []any, error) {
	rec := goqu.Record{}
	for col, v := range ch {
		switch val := v.(type) {
		case []string:
			b, err := json.Marshal(nonNil(val))
			if err != nil {
				return "", nil, err
			}
			rec[col] = goqu.L("?::jsonb", string(b))
		default:
			rec[col] = val
		}
	}
	rec["updated_at"] = goqu.L("GREATEST(?::timestamptz, updated_at)", now.UTC())

	return dialect.Update(goqu.T("patients")).
		Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
}
