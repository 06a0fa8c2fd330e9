/*
 * @module service/data_quality/script
 * @description 自定义规则脚本执行器，基于yaegi解释器执行用户提供的Go脚本片段
 * @architecture 工具层 - 脚本扩展点
 * @documentReference ai_docs/data_quality_engine_impl.md
 * @stateFlow 脚本哈希 -> 查缓存 -> 编译 -> 执行 Check 入口
 * @rules 脚本必须返回 (bool, string)，true 表示通过；编译结果以内容哈希缓存
 * @dependencies github.com/traefik/yaegi
 * @refs service/data_quality/validator.go
 */

package data_quality

import (
	"crypto/sha1"
	"fmt"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// RuleScriptExecutor 自定义规则脚本执行器，带编译缓存
type RuleScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]*compiledRuleScript
}

// compiledRuleScript 编译后的规则脚本
type compiledRuleScript struct {
	fn   func(map[string]interface{}) (bool, string)
	hash string
}

// NewRuleScriptExecutor 创建规则脚本执行器
func NewRuleScriptExecutor() *RuleScriptExecutor {
	return &RuleScriptExecutor{
		cache: make(map[string]*compiledRuleScript),
	}
}

// Execute 执行规则脚本，返回是否通过与违规消息
// params 中注入 value（字段值）、field（字段名）与 record（整条记录）
func (e *RuleScriptExecutor) Execute(script string, params map[string]interface{}) (bool, string, error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	e.mu.RLock()
	compiled, ok := e.cache[hash]
	e.mu.RUnlock()

	if !ok {
		var err error
		compiled, err = e.compile(script, hash)
		if err != nil {
			return false, "", fmt.Errorf("脚本编译失败: %w", err)
		}
		e.mu.Lock()
		e.cache[hash] = compiled
		e.mu.Unlock()
	}

	passed, message := compiled.fn(params)
	return passed, message, nil
}

// compile 编译脚本为可执行函数
func (e *RuleScriptExecutor) compile(script, hash string) (*compiledRuleScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	// 包装脚本：要求脚本必须实现一个 Check 函数
	wrapped := fmt.Sprintf(`
package main

import (
	"fmt"
	"strconv"
	"strings"
)

// 必须提供一个 Check 函数作为入口
func Check(params map[string]interface{}) (bool, string) {
	value := params["value"]
	field, _ := params["field"].(string)
	record, _ := params["record"].(map[string]interface{})
	_ = value
	_ = field
	_ = record

	// 脚本内容
%s
}
`, script)

	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	v, err := i.Eval("Check")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Check 函数: %w", err)
	}

	checkFunc, ok := v.Interface().(func(map[string]interface{}) (bool, string))
	if !ok {
		return nil, fmt.Errorf("Check 函数签名必须是 func(map[string]interface{}) (bool, string)")
	}

	return &compiledRuleScript{fn: checkFunc, hash: hash}, nil
}

// CacheSize 返回已缓存的脚本数量
func (e *RuleScriptExecutor) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
