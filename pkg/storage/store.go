// Package storage 提供客户端使用的持久化键值存储及其各个后端实现。
package storage

import (
	"context"
	"errors"
)

// ErrNotFound 表示键不存在。
var ErrNotFound = errors.New("storage: 键不存在")

// Store 是一个尽力而为的持久化键值存储。
// 实现必须允许并发调用；读写失败以 error 返回，不得 panic。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type namespaced struct {
	prefix string
	inner  Store
}

// WithNamespace 为所有键加上 "{namespace}:" 前缀，namespace 为空时原样返回。
func WithNamespace(store Store, namespace string) Store {
	if namespace == "" {
		return store
	}
	return &namespaced{prefix: namespace + ":", inner: store}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.inner.Remove(ctx, n.prefix+key)
}
