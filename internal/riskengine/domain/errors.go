package domain

import "errors"

var (
	// ErrNotFound 实体不存在或不属于请求租户。跨租户访问一律返回该错误,
	// 不区分"不存在"与"无权限",避免泄露其他租户数据的存在性。
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidRule 规则配置不合法(空 code、未知 scope、负权重等)
	ErrInvalidRule = errors.New("invalid rule configuration")

	// ErrInvalidTransition 警报状态机不允许的状态迁移
	ErrInvalidTransition = errors.New("invalid alert status transition")
)
