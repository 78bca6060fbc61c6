package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nie11kun/price-comparator/database"
	"github.com/nie11kun/price-comparator/models"
)

type PriceRepository struct{}

func NewPriceRepository() *PriceRepository {
	return &PriceRepository{}
}

// ReplaceAll swaps the entire price dataset in one transaction, so
// readers see either the previous batch or the new one, never a partly
// deleted state. Callers must not pass an empty batch; wiping the
// dataset is never what an update run means.
func (r *PriceRepository) ReplaceAll(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("refusing to replace price data with an empty set")
	}

	tx, err := database.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM prices`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete previous prices: %v", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (app_name, plan_name, region, currency, price, price_reference, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %v", err)
	}

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.AppName, rec.PlanName, rec.Region, rec.Currency, rec.Price, rec.PriceReference, rec.LastUpdated); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("failed to insert price record: %v", err)
		}
	}
	stmt.Close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price replacement: %v", err)
	}
	return nil
}

// Query returns the records for an app, optionally narrowed to one
// plan, ordered by converted price, together with the latest update
// timestamp among them.
func (r *PriceRepository) Query(ctx context.Context, appName, planName string) ([]models.PriceRecord, *time.Time, error) {
	query := `
		SELECT app_name, plan_name, region, currency, price, price_reference, last_updated
		FROM prices
		WHERE app_name = $1
	`
	args := []interface{}{appName}
	if planName != "" {
		query += ` AND plan_name = $2`
		args = append(args, planName)
	}
	query += ` ORDER BY price_reference ASC`

	rows, err := database.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query prices: %v", err)
	}
	defer rows.Close()

	var records []models.PriceRecord
	var latest *time.Time
	for rows.Next() {
		var rec models.PriceRecord
		err := rows.Scan(
			&rec.AppName, &rec.PlanName, &rec.Region, &rec.Currency,
			&rec.Price, &rec.PriceReference, &rec.LastUpdated,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan price record: %v", err)
		}
		if latest == nil || rec.LastUpdated.After(*latest) {
			t := rec.LastUpdated
			latest = &t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read price rows: %v", err)
	}

	return records, latest, nil
}
