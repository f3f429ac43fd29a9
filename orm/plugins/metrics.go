package plugins

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/metrics"
)

const startTimeKey = "metrics:start_time"

var tablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)FROM\s+["\x60]?(\w+)["\x60]?`),          // SELECT ... FROM table
	regexp.MustCompile(`(?i)INSERT\s+INTO\s+["\x60]?(\w+)["\x60]?`), // INSERT INTO table
	regexp.MustCompile(`(?i)UPDATE\s+["\x60]?(\w+)["\x60]?`),        // UPDATE table
}

// MetricsPlugin is a GORM plugin that tracks database query metrics
type MetricsPlugin struct{}

func NewMetricsPlugin() *MetricsPlugin {
	return &MetricsPlugin{}
}

func (p *MetricsPlugin) Name() string {
	return "MetricsPlugin"
}

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("*").Register("metrics:before_query", p.before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("*").Register("metrics:after_query", p.after); err != nil {
		return err
	}
	if err := db.Callback().Create().Before("*").Register("metrics:before_create", p.before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("*").Register("metrics:after_create", p.after); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("*").Register("metrics:before_update", p.before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("*").Register("metrics:after_update", p.after); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("*").Register("metrics:before_raw", p.before); err != nil {
		return err
	}
	return db.Callback().Raw().After("*").Register("metrics:after_raw", p.after)
}

func (p *MetricsPlugin) before(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func (p *MetricsPlugin) after(db *gorm.DB) {
	value, exists := db.InstanceGet(startTimeKey)
	if !exists {
		return
	}
	start, ok := value.(time.Time)
	if !ok {
		return
	}

	sql := ""
	if db.Statement != nil {
		sql = db.Statement.SQL.String()
	}
	operation := OperationType(sql)
	table := tableName(db, sql)

	status := "success"
	if db.Error != nil {
		status = "error"
	}

	dbMetrics := metrics.GetMetrics().DatabaseMetrics()
	dbMetrics.QueriesTotal.WithLabelValues(operation, status).Inc()
	dbMetrics.QueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if operation != "SELECT" && db.RowsAffected >= 0 {
		dbMetrics.RowsAffected.WithLabelValues(operation).Observe(float64(db.RowsAffected))
	}
}

// OperationType extracts the leading SQL verb
func OperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	if sql == "" {
		return "UNKNOWN"
	}

	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}

func tableName(db *gorm.DB, sql string) string {
	if db.Statement != nil && db.Statement.Table != "" {
		return db.Statement.Table
	}

	for _, re := range tablePatterns {
		if matches := re.FindStringSubmatch(sql); len(matches) > 1 {
			return matches[1]
		}
	}
	return "unknown"
}
