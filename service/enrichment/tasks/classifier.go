/*
 * @module service/enrichment/tasks/classifier
 * @description 业态分类任务，基于场所名称的关键词匹配推断经营业态并给出置信度
 * @architecture 业务服务层 - 富化任务
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 名称归一化 -> 关键词计分 -> 最优业态选择 -> 结果输出
 * @rules 分类结果确定性：相同输入必然产出相同业态与置信度；无关键词命中时置信度低于持久化阈值
 * @dependencies strings
 * @refs service/enrichment/tasks/task.go
 */

package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"enrichhub-service/service/models"
)

// conceptKeywords 业态关键词表
var conceptKeywords = map[string][]string{
	"sports_bar":      {"sports", "stadium", "arena", "draft house", "game"},
	"wine_bar":        {"wine", "vino", "cellar", "vineyard", "sommelier"},
	"cocktail_lounge": {"cocktail", "lounge", "speakeasy", "mixology", "martini"},
	"brewpub":         {"brew", "brewery", "brewing", "taproom", "ale house"},
	"nightclub":       {"club", "nightclub", "disco", "cabaret"},
	"hotel_bar":       {"hotel", "inn", "resort", "suites"},
	"restaurant": {
		"restaurant", "grill", "cafe", "kitchen", "bistro", "cantina",
		"taqueria", "bbq", "steakhouse", "pizzeria", "diner",
	},
}

// 置信度计算参数
const (
	classifierBaseConfidence = 0.4
	classifierPerMatch       = 0.15
	classifierMaxConfidence  = 0.9
	// 未命中任何关键词时的兜底置信度，低于流水线默认阈值
	classifierFallbackConfidence = 0.25
)

// ConceptClassifier 业态分类任务
type ConceptClassifier struct{}

// NewConceptClassifier 创建业态分类任务
func NewConceptClassifier() *ConceptClassifier {
	return &ConceptClassifier{}
}

func (c *ConceptClassifier) Name() string {
	return TaskClassification
}

// Run 对场所名称执行关键词计分分类
func (c *ConceptClassifier) Run(ctx context.Context, venue *models.Venue) (*models.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(venue.LocationName) == "" {
		return nil, fmt.Errorf("场所名称为空，无法分类")
	}

	name := strings.ToLower(venue.LocationName)

	bestConcept := ""
	bestMatches := []string{}
	// 按业态名排序遍历，保证并列时结果确定
	concepts := make([]string, 0, len(conceptKeywords))
	for concept := range conceptKeywords {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)

	for _, concept := range concepts {
		var matches []string
		for _, keyword := range conceptKeywords[concept] {
			if strings.Contains(name, keyword) {
				matches = append(matches, keyword)
			}
		}
		if len(matches) > len(bestMatches) {
			bestConcept = concept
			bestMatches = matches
		}
	}

	if bestConcept == "" {
		return &models.TaskResult{
			TaskName:   c.Name(),
			DataSource: "keyword_classifier",
			Confidence: classifierFallbackConfidence,
			Data: map[string]interface{}{
				"concept_type": "general_bar",
			},
		}, nil
	}

	confidence := classifierBaseConfidence + classifierPerMatch*float64(len(bestMatches))
	if confidence > classifierMaxConfidence {
		confidence = classifierMaxConfidence
	}

	return &models.TaskResult{
		TaskName:   c.Name(),
		DataSource: "keyword_classifier",
		Confidence: confidence,
		Data: map[string]interface{}{
			"concept_type":  bestConcept,
			"matched_terms": bestMatches,
		},
	}, nil
}
