/*
 * @module service/data_quality/cleanser_test
 * @description 数据清洗器单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 原始字段输入 -> 清洗 -> 标准化输出验证
 * @rules 不依赖数据库
 * @dependencies testing, stretchr/testify
 * @refs cleanser.go
 */

package data_quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCleanName 名称清洗：空白折叠与标题化
func TestCleanName(t *testing.T) {
	cleanser := NewDataCleanser()

	assert.Equal(t, "Joe's Sports Bar", cleanser.CleanName("  JOE'S   SPORTS  BAR  "))
	assert.Equal(t, "The Dive", cleanser.CleanName("the dive"))
	assert.Equal(t, "", cleanser.CleanName("   "))
}

// TestCleanAddress 地址清洗：街道后缀标准化
func TestCleanAddress(t *testing.T) {
	cleanser := NewDataCleanser()

	assert.Equal(t, "123 Main St", cleanser.CleanAddress("123 MAIN STREET"))
	assert.Equal(t, "456 Oak Ave Ste 200", cleanser.CleanAddress("456 oak avenue suite 200"))
	assert.Equal(t, "789 Ranch Rd", cleanser.CleanAddress("789  ranch   road"))
}

// TestCleanZip 邮编归一化
func TestCleanZip(t *testing.T) {
	cleanser := NewDataCleanser()

	assert.Equal(t, "78701", cleanser.CleanZip("78701"))
	assert.Equal(t, "78701", cleanser.CleanZip("78701-"))
	assert.Equal(t, "78701-1234", cleanser.CleanZip("787011234"))
	assert.Equal(t, "78701-1234", cleanser.CleanZip("78701-1234"))
	// 不足5位数字时保留原始修整值
	assert.Equal(t, "7701", cleanser.CleanZip(" 7701 "))
}

// TestCleanRecord 记录级清洗不修改原记录
func TestCleanRecord(t *testing.T) {
	cleanser := NewDataCleanser()

	original := map[string]interface{}{
		"location_name":    "JOE'S   BAR",
		"location_address": "123 main street",
		"location_city":    "austin",
		"location_state":   " tx ",
		"location_zip":     "787011234",
		"total_receipts":   100000.0,
	}

	cleaned := cleanser.CleanRecord(original)

	assert.Equal(t, "Joe's Bar", cleaned["location_name"])
	assert.Equal(t, "123 Main St", cleaned["location_address"])
	assert.Equal(t, "Austin", cleaned["location_city"])
	assert.Equal(t, "TX", cleaned["location_state"])
	assert.Equal(t, "78701-1234", cleaned["location_zip"])
	assert.Equal(t, 100000.0, cleaned["total_receipts"])

	// 原记录保持不变
	assert.Equal(t, "JOE'S   BAR", original["location_name"])
}
