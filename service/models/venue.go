/*
 * @module service/models/venue
 * @description 场所主数据模型，包含经营场所的基础信息、地理信息、经营额与数据质量评分
 * @architecture 数据模型层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 原始数据导入 -> 数据清洗 -> 富化任务执行 -> 质量评估
 * @rules 场所记录为富化流水线的核心实体，location_* 字段为质量评估的关键字段
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/enrichment/, service/data_quality/
 */

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Venue 经营场所模型
type Venue struct {
	ID                  string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	TaxpayerNumber      string     `gorm:"type:varchar(20);index" json:"taxpayer_number"`
	TaxpayerName        string     `gorm:"type:varchar(255)" json:"taxpayer_name"`
	LocationName        string     `gorm:"type:varchar(255);index" json:"location_name"`
	LocationAddress     string     `gorm:"type:varchar(255)" json:"location_address"`
	LocationCity        string     `gorm:"type:varchar(100);index" json:"location_city"`
	LocationState       string     `gorm:"type:varchar(2)" json:"location_state"`
	LocationZip         string     `gorm:"type:varchar(10)" json:"location_zip"`
	LocationCounty      string     `gorm:"type:varchar(100)" json:"location_county"`
	LiquorReceipts      float64    `json:"liquor_receipts"`
	WineReceipts        float64    `json:"wine_receipts"`
	BeerReceipts        float64    `json:"beer_receipts"`
	TotalReceipts       float64    `gorm:"index" json:"total_receipts"`
	ObligationEndDate   *time.Time `json:"obligation_end_date,omitempty"`
	Latitude            *float64   `json:"latitude,omitempty"`
	Longitude           *float64   `json:"longitude,omitempty"`
	GeocodingConfidence *float64   `json:"geocoding_confidence,omitempty"`
	DataQualityScore    *float64   `json:"data_quality_score,omitempty"`
	// 指针类型避免GORM在Create时把false当零值忽略而落回列默认值
	IsActive            *bool      `gorm:"default:true" json:"is_active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// 关联的富化结果
	Classifications []ConceptClassification `gorm:"foreignKey:VenueID" json:"classifications,omitempty"`
	Demographics    []DemographicData       `gorm:"foreignKey:VenueID" json:"demographics,omitempty"`
	Footprints      []FootprintData         `gorm:"foreignKey:VenueID" json:"footprints,omitempty"`
}

// TableName 指定表名
func (Venue) TableName() string {
	return "venues"
}

// BeforeCreate 创建前钩子
func (v *Venue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// FullAddress 拼接完整地址，跳过空字段
func (v *Venue) FullAddress() string {
	parts := []string{}
	for _, p := range []string{v.LocationAddress, v.LocationCity, v.LocationState, v.LocationZip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// AsRecord 将场所转换为通用记录，供验证引擎和质量分析器使用
func (v *Venue) AsRecord() map[string]interface{} {
	record := map[string]interface{}{
		"id":               v.ID,
		"taxpayer_number":  v.TaxpayerNumber,
		"taxpayer_name":    v.TaxpayerName,
		"location_name":    v.LocationName,
		"location_address": v.LocationAddress,
		"location_city":    v.LocationCity,
		"location_state":   v.LocationState,
		"location_zip":     v.LocationZip,
		"location_county":  v.LocationCounty,
		"liquor_receipts":  v.LiquorReceipts,
		"wine_receipts":    v.WineReceipts,
		"beer_receipts":    v.BeerReceipts,
		"total_receipts":   v.TotalReceipts,
	}
	if v.Latitude != nil {
		record["latitude"] = *v.Latitude
	}
	if v.Longitude != nil {
		record["longitude"] = *v.Longitude
	}
	if v.GeocodingConfidence != nil {
		record["geocoding_confidence"] = *v.GeocodingConfidence
	}
	return record
}

// CacheIdentity 生成用于任务结果缓存键的标识串
func (v *Venue) CacheIdentity() string {
	return fmt.Sprintf("%s|%s|%s", v.LocationName, v.LocationAddress, v.LocationZip)
}
