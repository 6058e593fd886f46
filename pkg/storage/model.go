// 文件: pkg/storage/model.go
// GORM 持久化模型与惰性在线迁移
//
// 移植自 futures/mysql_repo.go 的 GORM 用法，表结构遵循 spec 的
// stock_daily 定义：(symbol, date) 唯一索引 + 次级范围扫描索引。

package storage

import (
	"log"

	"gorm.io/gorm"

	"github.com/MINGCHOW/intelligent-stock-decision/pkg/bar"
)

// DailyBar is the GORM row shape for one stock_daily record.
type DailyBar struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	Symbol string `gorm:"column:symbol;size:16;uniqueIndex:uq_symbol_date;index:idx_symbol_date"`
	Date   string `gorm:"column:date;size:10;uniqueIndex:uq_symbol_date;index:idx_symbol_date"`

	Open   float64 `gorm:"column:open"`
	High   float64 `gorm:"column:high"`
	Low    float64 `gorm:"column:low"`
	Close  float64 `gorm:"column:close"`
	Volume float64 `gorm:"column:volume"`
	Amount float64 `gorm:"column:amount"`
	PctChg float64 `gorm:"column:pct_chg"`

	MA5         float64 `gorm:"column:ma5"`
	MA10        float64 `gorm:"column:ma10"`
	MA20        float64 `gorm:"column:ma20"`
	VolumeRatio float64 `gorm:"column:volume_ratio"`
	MACD        float64 `gorm:"column:macd"`
	MACDSignal  float64 `gorm:"column:macd_signal"`
	MACDHist    float64 `gorm:"column:macd_hist"`
	RSI         float64 `gorm:"column:rsi"`
	ATR         float64 `gorm:"column:atr"`

	DataSource string `gorm:"column:data_source;size:32"`
	CreatedAt  int64  `gorm:"column:created_at"`
	UpdatedAt  int64  `gorm:"column:updated_at"`
}

// TableName is the GORM table name.
func (DailyBar) TableName() string { return "stock_daily" }

const dateLayout = "2006-01-02"

func toRow(b bar.Bar, nowMillis int64) DailyBar {
	return DailyBar{
		Symbol: b.Symbol, Date: b.Date.Format(dateLayout),
		Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
		Volume: b.Volume, Amount: b.Amount, PctChg: b.PctChg,
		MA5: b.MA5, MA10: b.MA10, MA20: b.MA20, VolumeRatio: b.VolumeRatio,
		MACD: b.MACD, MACDSignal: b.MACDSignal, MACDHist: b.MACDHist,
		RSI: b.RSI, ATR: b.ATR, DataSource: b.DataSource,
		UpdatedAt: nowMillis,
	}
}

func fromRow(r DailyBar) bar.Bar {
	d, _ := parseDate(r.Date)
	return bar.Bar{
		Symbol: r.Symbol, Date: d,
		Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
		Volume: r.Volume, Amount: r.Amount, PctChg: r.PctChg,
		MA5: r.MA5, MA10: r.MA10, MA20: r.MA20, VolumeRatio: r.VolumeRatio,
		MACD: r.MACD, MACDSignal: r.MACDSignal, MACDHist: r.MACDHist,
		RSI: r.RSI, ATR: r.ATR, DataSource: r.DataSource,
	}
}

// onlineMigrationColumns are indicator columns that may be missing from an
// older table created before these fields existed.
var onlineMigrationColumns = []string{"macd", "macd_signal", "macd_hist", "rsi", "atr"}

// migrate performs the lazy online migration described in spec §4.7:
// AutoMigrate the base table, then ALTER TABLE ADD COLUMN for any indicator
// column still missing. Failures are logged, never fatal — older rows
// simply lack the new fields until their next upsert.
func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&DailyBar{}); err != nil {
		log.Printf("[Storage] auto-migrate failed (continuing): %v", err)
		return
	}

	migrator := db.Migrator()
	for _, col := range onlineMigrationColumns {
		if migrator.HasColumn(&DailyBar{}, col) {
			continue
		}
		if err := migrator.AddColumn(&DailyBar{}, col); err != nil {
			log.Printf("[Storage] add column %q failed (continuing): %v", col, err)
		}
	}
}
