// 文件: pkg/storage/storage.go
// 持久化层 - 日线数据存取、幂等 upsert、分析上下文组装
//
// 移植自 futures/mysql_repo.go 的 GORM 用法：WithContext、
// clause.OnConflict 做 upsert。

package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
)

// Store is the persistent bar store backed by GORM + MySQL.
type Store struct {
	db     *gorm.DB
	logger *log.Logger
}

// Open wraps an already-connected *gorm.DB, running the lazy online
// migration before returning.
func Open(db *gorm.DB) *Store {
	migrate(db)
	return &Store{db: db, logger: log.Default()}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// HasRow reports whether an exact (symbol, date) row exists, used by
// resume logic to skip already-ingested dates.
func (s *Store) HasRow(ctx context.Context, symbol string, date time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&DailyBar{}).
		Where("symbol = ? AND date = ?", symbol, date.Format(dateLayout)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("storage: has_row: %w", err)
	}
	return count > 0, nil
}

// Latest returns the most recent n rows for symbol, descending by date.
func (s *Store) Latest(ctx context.Context, symbol string, n int) ([]bar.Bar, error) {
	var rows []DailyBar
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("storage: latest: %w", err)
	}
	out := make([]bar.Bar, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

// Range returns rows for symbol between from and to (inclusive), ascending.
func (s *Store) Range(ctx context.Context, symbol string, from, to time.Time) ([]bar.Bar, error) {
	var rows []DailyBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND date BETWEEN ? AND ?", symbol, from.Format(dateLayout), to.Format(dateLayout)).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("storage: range: %w", err)
	}
	out := make([]bar.Bar, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

// Upsert writes every bar in series: existing (symbol, date) rows have all
// non-key fields overwritten and updated_at bumped; new rows are inserted.
// Uniqueness violations cannot occur (OnConflict handles them); per-row
// failures are logged and skipped so one bad row never poisons the batch.
func (s *Store) Upsert(ctx context.Context, series *bar.Series, source string) (int, error) {
	if series == nil {
		return 0, nil
	}

	now := time.Now().UnixMilli()
	count := 0
	for _, b := range series.Bars {
		b.DataSource = source
		row := toRow(b, now)
		row.CreatedAt = now

		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "symbol"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"open", "high", "low", "close", "volume", "amount", "pct_chg",
				"ma5", "ma10", "ma20", "volume_ratio",
				"macd", "macd_signal", "macd_hist", "rsi", "atr",
				"data_source", "updated_at",
			}),
		}).Create(&row).Error

		if err != nil {
			s.logger.Printf("[Storage] upsert skipped for %s %s: %v", b.Symbol, row.Date, err)
			continue
		}
		count++
	}
	return count, nil
}

// Context is the analysis-context bundle assembled from the last N rows
// of a symbol's history (spec §4.7 analysis_context).
type Context struct {
	Symbol            string
	Bars              []bar.Bar
	MAStatus          string
	VolumeChangeRatio float64
	PriceChangeRatio  float64
	Indicators        IndicatorsBlock
}

// IndicatorsBlock echoes the latest bar's indicator values for convenience.
type IndicatorsBlock struct {
	MA5, MA10, MA20   float64
	MACD, MACDSignal  float64
	MACDHist          float64
	RSI, ATR          float64
	VolumeRatio       float64
}

// AnalysisContext returns the last `days` rows plus derived context fields,
// or nil if fewer than 20 rows are available (per spec §4.7).
func (s *Store) AnalysisContext(ctx context.Context, symbol string, days int) (*Context, error) {
	rows, err := s.Latest(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if len(rows) < 20 {
		return nil, nil
	}

	ascending := make([]bar.Bar, len(rows))
	for i, r := range rows {
		ascending[len(rows)-1-i] = r
	}

	last := ascending[len(ascending)-1]
	prev := ascending[len(ascending)-2]

	volumeChangeRatio := 0.0
	if prev.Volume != 0 {
		volumeChangeRatio = (last.Volume - prev.Volume) / prev.Volume * 100
	}
	priceChangeRatio := 0.0
	if prev.Close != 0 {
		priceChangeRatio = (last.Close - prev.Close) / prev.Close * 100
	}

	return &Context{
		Symbol:            symbol,
		Bars:              ascending,
		MAStatus:          maStatus(last),
		VolumeChangeRatio: volumeChangeRatio,
		PriceChangeRatio:  priceChangeRatio,
		Indicators: IndicatorsBlock{
			MA5: last.MA5, MA10: last.MA10, MA20: last.MA20,
			MACD: last.MACD, MACDSignal: last.MACDSignal, MACDHist: last.MACDHist,
			RSI: last.RSI, ATR: last.ATR, VolumeRatio: last.VolumeRatio,
		},
	}, nil
}

// maStatus derives one of five textual labels from the multi-MA ordering
// plus close, the same style of MA-ordering read the decision engine uses
// for its seven-state trend_status but collapsed to a coarser grain for
// persistence-context consumers (e.g. report renderers) that do not need
// the full trend state machine.
func maStatus(b bar.Bar) string {
	switch {
	case b.Close > b.MA5 && b.MA5 > b.MA10 && b.MA10 > b.MA20:
		return "多头排列"
	case b.Close > b.MA5 && b.MA5 > b.MA10:
		return "偏多排列"
	case b.Close < b.MA5 && b.MA5 < b.MA10 && b.MA10 < b.MA20:
		return "空头排列"
	case b.Close < b.MA5 && b.MA5 < b.MA10:
		return "偏空排列"
	default:
		return "震荡整理"
	}
}
