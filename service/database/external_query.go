/*
 * @module service/database/external_query
 * @description 外部数据集查询器，从任意外部PostgreSQL表拉取记录供质量分析使用
 * @architecture 数据访问层 - 外部数据源
 * @documentReference ai_docs/quality_assessment_impl.md
 * @stateFlow 建立连接池 -> 执行查询 -> 行扫描为通用记录 -> 关闭
 * @rules 只读查询；表名经标识符校验防注入；[]byte列值转为字符串
 * @dependencies database/sql, github.com/lib/pq
 * @refs api/controllers/quality_controller.go
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq" // PostgreSQL驱动
)

// identifierPattern 合法的表名/schema标识符
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// ExternalQuerier 外部PostgreSQL数据集查询器
type ExternalQuerier struct {
	db *sql.DB
}

// NewExternalQuerier 用lib/pq连接串创建外部查询器
func NewExternalQuerier(connStr string) (*ExternalQuerier, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("打开外部数据源失败: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("外部数据源连接测试失败: %w", err)
	}

	return &ExternalQuerier{db: db}, nil
}

// FetchRecords 拉取外部表的记录集，limit<=0时不限制条数
func (q *ExternalQuerier) FetchRecords(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("非法的表名: %s", table)
	}

	query := fmt.Sprintf("SELECT * FROM %s", table)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("执行外部查询失败: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("获取列信息失败: %w", err)
	}

	var records []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("扫描行数据失败: %w", err)
		}

		record := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取外部数据时发生错误: %w", err)
	}
	return records, nil
}

// Close 关闭连接池
func (q *ExternalQuerier) Close() error {
	if q.db != nil {
		return q.db.Close()
	}
	return nil
}
