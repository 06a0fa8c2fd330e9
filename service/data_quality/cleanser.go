/*
 * @module service/data_quality/cleanser
 * @description 数据清洗器，负责字符串修整、名称标题化、街道后缀标准化与邮编归一化
 * @architecture 业务服务层 - 数据清洗层
 * @documentReference ai_docs/data_quality_engine_impl.md
 * @stateFlow 原始记录 -> 字段级清洗 -> 标准化记录输出
 * @rules 清洗只做无损归一化，不推断缺失值；州代码统一大写，邮编只保留前5位或5+4格式
 * @dependencies golang.org/x/text/cases
 * @refs service/data_quality/reporter.go, service/enrichment/pipeline.go
 */

package data_quality

import (
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// streetSuffixes 街道后缀标准化映射
var streetSuffixes = map[string]string{
	"street":    "St",
	"avenue":    "Ave",
	"boulevard": "Blvd",
	"drive":     "Dr",
	"lane":      "Ln",
	"road":      "Rd",
	"court":     "Ct",
	"place":     "Pl",
	"circle":    "Cir",
	"highway":   "Hwy",
	"parkway":   "Pkwy",
	"suite":     "Ste",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	zipDigitsRe  = regexp.MustCompile(`\d`)
)

// DataCleanser 数据清洗器
type DataCleanser struct {
	titleCaser cases.Caser
}

// NewDataCleanser 创建数据清洗器实例
func NewDataCleanser() *DataCleanser {
	return &DataCleanser{
		titleCaser: cases.Title(language.AmericanEnglish),
	}
}

// CleanRecord 对单条记录执行字段级清洗，返回新记录，原记录不变
func (c *DataCleanser) CleanRecord(record map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(record))
	for k, v := range record {
		cleaned[k] = v
	}

	if v, ok := cleaned["location_name"]; ok {
		cleaned["location_name"] = c.CleanName(cast.ToString(v))
	}
	if v, ok := cleaned["location_address"]; ok {
		cleaned["location_address"] = c.CleanAddress(cast.ToString(v))
	}
	if v, ok := cleaned["location_city"]; ok {
		cleaned["location_city"] = c.CleanName(cast.ToString(v))
	}
	if v, ok := cleaned["location_state"]; ok {
		cleaned["location_state"] = strings.ToUpper(strings.TrimSpace(cast.ToString(v)))
	}
	if v, ok := cleaned["location_zip"]; ok {
		cleaned["location_zip"] = c.CleanZip(cast.ToString(v))
	}
	return cleaned
}

// CleanRecords 批量清洗记录集
func (c *DataCleanser) CleanRecords(records []map[string]interface{}) []map[string]interface{} {
	cleaned := make([]map[string]interface{}, len(records))
	for i, record := range records {
		cleaned[i] = c.CleanRecord(record)
	}
	return cleaned
}

// CleanName 名称清洗：修整空白、折叠连续空格并标题化
func (c *DataCleanser) CleanName(name string) string {
	name = multiSpaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" {
		return ""
	}
	return c.titleCaser.String(strings.ToLower(name))
}

// CleanAddress 地址清洗：标题化并标准化街道后缀
func (c *DataCleanser) CleanAddress(address string) string {
	address = c.CleanName(address)
	if address == "" {
		return ""
	}

	words := strings.Split(address, " ")
	for i, word := range words {
		trimmed := strings.TrimRight(word, ".,")
		if suffix, ok := streetSuffixes[strings.ToLower(trimmed)]; ok {
			words[i] = suffix
		}
	}
	return strings.Join(words, " ")
}

// CleanZip 邮编归一化：提取数字，保留5位或5+4格式
func (c *DataCleanser) CleanZip(zip string) string {
	digits := strings.Join(zipDigitsRe.FindAllString(zip, -1), "")
	switch {
	case len(digits) >= 9:
		return digits[:5] + "-" + digits[5:9]
	case len(digits) >= 5:
		return digits[:5]
	default:
		return strings.TrimSpace(zip)
	}
}
