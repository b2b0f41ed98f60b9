// internal/infra/orderlines/source.go
package orderlines

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
	"github.com/sirupsen/logrus"

	"seller_escalation_bot/internal/domain/quality"
)

// weeklyQuery aggregates raw order lines into one row per seller and ISO week.
// The profile columns are taken from any line of the week; the latest week wins.
const weeklyQuery = `
	SELECT
		CAST(seller_id AS VARCHAR)                     AS seller_id,
		COALESCE(CAST(any_value(seller_name) AS VARCHAR), '')   AS seller_name,
		COALESCE(CAST(any_value(owner_name) AS VARCHAR), '')    AS owner_name,
		COALESCE(CAST(any_value(tier) AS VARCHAR), '')          AS tier,
		COALESCE(CAST(any_value(activity_type) AS VARCHAR), '') AS activity_type,
		COALESCE(CAST(any_value(email) AS VARCHAR), '')         AS email,
		CAST(date_trunc('week', CAST(order_date AS DATE)) AS DATE) AS week_start,
		CAST(SUM(CAST(delivered AS BIGINT)) AS BIGINT)         AS delivered,
		CAST(SUM(CAST(defective AS BIGINT)) AS BIGINT)         AS defective,
		CAST(SUM(CAST(appearance_issue AS BIGINT)) AS BIGINT)  AS appearance_issue
	FROM read_csv_auto('%s', header = true, types = {'seller_id': 'VARCHAR'})
	WHERE seller_id IS NOT NULL AND order_date IS NOT NULL
	GROUP BY 1, week_start
	ORDER BY 1, week_start
`

type sellerWeek struct {
	profile    quality.SellerProfile
	weekStart  time.Time
	delivered  int64
	defective  int64
	appearance int64
}

// Source computes seller snapshots from an order-lines CSV export.
// Streaks are derived here instead of being read from a precomputed sheet.
type Source struct {
	path     string
	resolver *quality.Resolver
	log      *logrus.Entry
}

func NewSource(path string, resolver *quality.Resolver, log *logrus.Entry) *Source {
	return &Source{
		path:     path,
		resolver: resolver,
		log:      log.WithFields(logrus.Fields{"component": "orderlines", "path": path}),
	}
}

// LoadSnapshots aggregates the file and resolves every seller. The as-of date
// of each snapshot is the latest week present in the file; a seller with no
// orders that week is evaluated as not failing it.
func (s *Source) LoadSnapshots(ctx context.Context) (*quality.Batch, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	weeks, err := s.queryWeeks(ctx, db)
	if err != nil {
		return nil, err
	}

	var asOf time.Time
	for _, w := range weeks {
		if w.weekStart.After(asOf) {
			asOf = w.weekStart
		}
	}

	batch := &quality.Batch{}
	for i, group := range groupBySeller(weeks) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := s.resolve(group, asOf)
		if err != nil {
			s.log.WithError(err).WithField("seller_id", group[0].profile.SellerID).Warn("Skipping seller")
			batch.Skipped = append(batch.Skipped, quality.RowError{Row: i + 1, Err: err})
			continue
		}
		batch.Snapshots = append(batch.Snapshots, snap)
	}

	s.log.WithFields(logrus.Fields{
		"weeks":   len(weeks),
		"sellers": len(batch.Snapshots),
		"skipped": len(batch.Skipped),
		"as_of":   asOf.Format("2006-01-02"),
	}).Info("Aggregated order lines into seller snapshots")
	return batch, nil
}

func (s *Source) queryWeeks(ctx context.Context, db *sql.DB) ([]sellerWeek, error) {
	query := fmt.Sprintf(weeklyQuery, strings.ReplaceAll(s.path, "'", "''"))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order lines: %w", err)
	}
	defer rows.Close()

	var weeks []sellerWeek
	for rows.Next() {
		var w sellerWeek
		if err := rows.Scan(
			&w.profile.SellerID, &w.profile.SellerName, &w.profile.OwnerName, &w.profile.Tier,
			&w.profile.ActivityType, &w.profile.Email,
			&w.weekStart, &w.delivered, &w.defective, &w.appearance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan weekly row: %w", err)
		}
		w.profile.SellerID = quality.NormalizeSellerID(w.profile.SellerID)
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return weeks, nil
}

func (s *Source) resolve(group []sellerWeek, asOf time.Time) (quality.SellerSnapshot, error) {
	defective := make([]quality.WeeklyObservation, 0, len(group)+1)
	appearance := make([]quality.WeeklyObservation, 0, len(group)+1)
	for _, w := range group {
		defective = append(defective, quality.WeeklyObservation{
			SellerID:       w.profile.SellerID,
			WeekStart:      w.weekStart,
			IssueCount:     int(w.defective),
			DeliveredCount: int(w.delivered),
		})
		appearance = append(appearance, quality.WeeklyObservation{
			SellerID:       w.profile.SellerID,
			WeekStart:      w.weekStart,
			IssueCount:     int(w.appearance),
			DeliveredCount: int(w.delivered),
		})
	}

	latest := group[len(group)-1]
	if latest.weekStart.Before(asOf) {
		// No orders in the current week. An empty week has rate 0 and never
		// fails, so an older streak ends here and shows as Historical.
		idle := quality.WeeklyObservation{SellerID: latest.profile.SellerID, WeekStart: asOf}
		defective = append(defective, idle)
		appearance = append(appearance, idle)
	}

	def, app, d, err := s.resolver.ResolveSeries(defective, appearance)
	if err != nil {
		return quality.SellerSnapshot{}, err
	}
	return quality.BuildSnapshot(latest.profile, asOf, def, app, d), nil
}

// groupBySeller merges rows by normalized seller ID, so "123" and "123.0"
// in one export are the same seller. Rows of the same week are summed. Groups
// are ordered by seller ID and each group by week.
func groupBySeller(weeks []sellerWeek) [][]sellerWeek {
	bySeller := make(map[string][]sellerWeek)
	for _, w := range weeks {
		id := w.profile.SellerID
		group := bySeller[id]
		merged := false
		for i := range group {
			if group[i].weekStart.Equal(w.weekStart) {
				group[i].delivered += w.delivered
				group[i].defective += w.defective
				group[i].appearance += w.appearance
				merged = true
				break
			}
		}
		if !merged {
			group = append(group, w)
		}
		bySeller[id] = group
	}

	ids := make([]string, 0, len(bySeller))
	for id := range bySeller {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([][]sellerWeek, 0, len(ids))
	for _, id := range ids {
		group := bySeller[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].weekStart.Before(group[j].weekStart) })
		groups = append(groups, group)
	}
	return groups
}
