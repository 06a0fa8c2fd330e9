/*
 * @module service/data_quality/validator
 * @description 数据验证引擎，按规则类型对记录逐条执行完整性、格式、范围、一致性与自定义校验
 * @architecture 业务服务层 - 规则引擎
 * @documentReference ai_docs/data_quality_engine_impl.md
 * @stateFlow 规则集加载 -> 逐记录逐规则评估 -> 验证结果集
 * @rules 缺失字段仅触发必填完整性规则；规则评估异常转为合成error级违规，不中断记录循环
 * @dependencies github.com/spf13/cast
 * @refs service/data_quality/analyzer.go, service/models/quality_models.go
 */

package data_quality

import (
	"fmt"
	"regexp"
	"strings"

	"enrichhub-service/service/models"

	"github.com/spf13/cast"
)

// ValidationEngine 数据验证引擎
type ValidationEngine struct {
	rules   []models.ValidationRule
	scripts *RuleScriptExecutor
}

// NewValidationEngine 创建验证引擎，rules为空时使用默认规则集
func NewValidationEngine(rules []models.ValidationRule, scripts *RuleScriptExecutor) *ValidationEngine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if scripts == nil {
		scripts = NewRuleScriptExecutor()
	}
	return &ValidationEngine{rules: rules, scripts: scripts}
}

// Rules 返回当前激活的规则集
func (e *ValidationEngine) Rules() []models.ValidationRule {
	return e.rules
}

// EnabledRuleCount 返回启用的规则数量
func (e *ValidationEngine) EnabledRuleCount() int {
	count := 0
	for _, r := range e.rules {
		if r.Enabled {
			count++
		}
	}
	return count
}

// ValidateRecords 对记录集逐条执行全部启用规则
func (e *ValidationEngine) ValidateRecords(records []map[string]interface{}) []models.ValidationResult {
	var results []models.ValidationResult
	for i, record := range records {
		results = append(results, e.ValidateRecord(record, i)...)
	}
	return results
}

// ValidateRecord 对单条记录执行全部启用规则
func (e *ValidationEngine) ValidateRecord(record map[string]interface{}, recordIndex int) []models.ValidationResult {
	var results []models.ValidationResult

	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}

		value, present := record[rule.Field]
		missing := !present || isEmptyValue(value)

		// 缺失字段只有必填完整性规则触发，其余规则类型跳过
		if missing && rule.RuleType != models.RuleTypeCompleteness {
			continue
		}

		passed, message, err := e.applyRule(rule, value, missing, record)
		if err != nil {
			// 规则评估异常转为合成违规，不中断记录循环
			results = append(results, models.ValidationResult{
				RuleName:    rule.Name,
				Field:       rule.Field,
				Passed:      false,
				Severity:    models.SeverityError,
				Message:     fmt.Sprintf("规则评估异常: %v", err),
				ActualValue: value,
				RecordIndex: recordIndex,
			})
			continue
		}

		result := models.ValidationResult{
			RuleName:    rule.Name,
			Field:       rule.Field,
			Passed:      passed,
			Severity:    rule.Severity,
			RecordIndex: recordIndex,
		}
		if !passed {
			result.Message = message
			result.ActualValue = value
		}
		results = append(results, result)
	}

	return results
}

// applyRule 按规则类型执行单条规则
func (e *ValidationEngine) applyRule(rule models.ValidationRule, value interface{}, missing bool, record map[string]interface{}) (bool, string, error) {
	switch rule.RuleType {
	case models.RuleTypeCompleteness:
		return e.checkCompleteness(rule, missing)
	case models.RuleTypeFormat:
		return e.checkFormat(rule, value)
	case models.RuleTypeRange:
		return e.checkRange(rule, value)
	case models.RuleTypeConsistency:
		return e.checkConsistency(rule, value, record)
	case models.RuleTypeCustom:
		return e.checkCustom(rule, value, record)
	default:
		return false, "", fmt.Errorf("未知的规则类型: %s", rule.RuleType)
	}
}

// checkCompleteness 完整性校验：必填字段缺失即违规
func (e *ValidationEngine) checkCompleteness(rule models.ValidationRule, missing bool) (bool, string, error) {
	required := true
	if v, ok := rule.Parameters["required"]; ok {
		required = cast.ToBool(v)
	}
	if required && missing {
		return false, fmt.Sprintf("必填字段 '%s' 缺失或为空", rule.Field), nil
	}
	return true, "", nil
}

// checkFormat 格式校验：正则匹配或固定取值集合（不区分大小写）
func (e *ValidationEngine) checkFormat(rule models.ValidationRule, value interface{}) (bool, string, error) {
	text := strings.TrimSpace(cast.ToString(value))

	if pattern, ok := rule.Parameters["pattern"]; ok {
		re, err := regexp.Compile(cast.ToString(pattern))
		if err != nil {
			return false, "", fmt.Errorf("正则表达式无效: %w", err)
		}
		if !re.MatchString(text) {
			return false, fmt.Sprintf("字段 '%s' 的值 '%s' 不符合要求的格式", rule.Field, text), nil
		}
		return true, "", nil
	}

	if allowed, ok := rule.Parameters["allowed_values"]; ok {
		for _, candidate := range cast.ToStringSlice(allowed) {
			if strings.EqualFold(text, candidate) {
				return true, "", nil
			}
		}
		return false, fmt.Sprintf("字段 '%s' 的值 '%s' 不在允许的取值范围内", rule.Field, text), nil
	}

	return true, "", nil
}

// checkRange 范围校验：三种独立的违规消息（非数值、低于下限、高于上限）
func (e *ValidationEngine) checkRange(rule models.ValidationRule, value interface{}) (bool, string, error) {
	number, err := cast.ToFloat64E(value)
	if err != nil {
		return false, fmt.Sprintf("字段 '%s' 的值 '%v' 不是数值", rule.Field, value), nil
	}

	if v, ok := rule.Parameters["min_value"]; ok {
		if min := cast.ToFloat64(v); number < min {
			return false, fmt.Sprintf("字段 '%s' 的值 %v 低于下限 %v", rule.Field, number, min), nil
		}
	}
	if v, ok := rule.Parameters["max_value"]; ok {
		if max := cast.ToFloat64(v); number > max {
			return false, fmt.Sprintf("字段 '%s' 的值 %v 高于上限 %v", rule.Field, number, max), nil
		}
	}
	return true, "", nil
}

// checkConsistency 一致性校验：参考字段的值必须出现在目标字段中（不区分大小写的子串）
func (e *ValidationEngine) checkConsistency(rule models.ValidationRule, value interface{}, record map[string]interface{}) (bool, string, error) {
	refField := cast.ToString(rule.Parameters["reference_field"])
	if refField == "" {
		return true, "", nil
	}

	refValue := strings.TrimSpace(cast.ToString(record[refField]))
	if refValue == "" {
		return true, "", nil
	}

	target := cast.ToString(value)
	if !strings.Contains(strings.ToLower(target), strings.ToLower(refValue)) {
		return false, fmt.Sprintf("参考字段 '%s' 的值 '%s' 未出现在字段 '%s' 中", refField, refValue, rule.Field), nil
	}
	return true, "", nil
}

// checkCustom 自定义校验：有脚本则交给脚本执行器，无脚本时恒通过
func (e *ValidationEngine) checkCustom(rule models.ValidationRule, value interface{}, record map[string]interface{}) (bool, string, error) {
	script := cast.ToString(rule.Parameters["script"])
	if script == "" {
		return true, "", nil
	}

	passed, message, err := e.scripts.Execute(script, map[string]interface{}{
		"value":  value,
		"field":  rule.Field,
		"record": record,
	})
	if err != nil {
		return false, "", err
	}
	return passed, message, nil
}

// isEmptyValue 判断字段值是否缺失或为空
func isEmptyValue(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// usStateCodes 美国州与属地的两位代码
var usStateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
	"DC",
}

// DefaultRules 默认规则集，覆盖场所记录的关键字段
func DefaultRules() []models.ValidationRule {
	return []models.ValidationRule{
		{
			Name: "required_location_name", Description: "场所名称必填",
			Field: "location_name", RuleType: models.RuleTypeCompleteness,
			Severity:   models.SeverityError,
			Parameters: map[string]interface{}{"required": true}, Enabled: true,
		},
		{
			Name: "required_location_address", Description: "场所地址必填",
			Field: "location_address", RuleType: models.RuleTypeCompleteness,
			Severity:   models.SeverityError,
			Parameters: map[string]interface{}{"required": true}, Enabled: true,
		},
		{
			Name: "required_total_receipts", Description: "总营业额必填",
			Field: "total_receipts", RuleType: models.RuleTypeCompleteness,
			Severity:   models.SeverityError,
			Parameters: map[string]interface{}{"required": true}, Enabled: true,
		},
		{
			Name: "zip_code_format", Description: "邮编必须为5位或5+4位格式",
			Field: "location_zip", RuleType: models.RuleTypeFormat,
			Severity:   models.SeverityError,
			Parameters: map[string]interface{}{"pattern": `^\d{5}(-\d{4})?$`}, Enabled: true,
		},
		{
			Name: "state_code_format", Description: "州代码必须为有效的两位代码",
			Field: "location_state", RuleType: models.RuleTypeFormat,
			Severity:   models.SeverityError,
			Parameters: map[string]interface{}{"allowed_values": usStateCodes}, Enabled: true,
		},
		{
			Name: "total_receipts_range", Description: "总营业额必须为非负且在合理区间内",
			Field: "total_receipts", RuleType: models.RuleTypeRange,
			Severity:   models.SeverityError,
			Parameters: map[string]interface{}{"min_value": 0, "max_value": 50000000}, Enabled: true,
		},
		{
			Name: "latitude_range", Description: "纬度应处于服务区域范围内",
			Field: "latitude", RuleType: models.RuleTypeRange,
			Severity:   models.SeverityWarning,
			Parameters: map[string]interface{}{"min_value": 25.0, "max_value": 37.0}, Enabled: true,
		},
		{
			Name: "longitude_range", Description: "经度应处于服务区域范围内",
			Field: "longitude", RuleType: models.RuleTypeRange,
			Severity:   models.SeverityWarning,
			Parameters: map[string]interface{}{"min_value": -107.0, "max_value": -93.0}, Enabled: true,
		},
		{
			Name: "concept_confidence_range", Description: "业态分类置信度应在0-1之间",
			Field: "concept_confidence", RuleType: models.RuleTypeRange,
			Severity:   models.SeverityWarning,
			Parameters: map[string]interface{}{"min_value": 0, "max_value": 1}, Enabled: true,
		},
		{
			Name: "population_range", Description: "一英里人口数应在合理区间内",
			Field: "population_1_mile", RuleType: models.RuleTypeRange,
			Severity:   models.SeverityWarning,
			Parameters: map[string]interface{}{"min_value": 0, "max_value": 1000000}, Enabled: true,
		},
		{
			Name: "square_footage_range", Description: "建筑面积应在合理区间内",
			Field: "square_footage", RuleType: models.RuleTypeRange,
			Severity:   models.SeverityWarning,
			Parameters: map[string]interface{}{"min_value": 100, "max_value": 100000}, Enabled: true,
		},
		{
			Name: "city_in_address", Description: "城市名应出现在完整地址中",
			Field: "location_address", RuleType: models.RuleTypeConsistency,
			Severity:   models.SeverityWarning,
			Parameters: map[string]interface{}{"reference_field": "location_city"}, Enabled: true,
		},
	}
}
