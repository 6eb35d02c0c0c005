package service

import (
	"fmt"

	"github.com/google/uuid"
)

// GenID 生成按时间有序的 ID，用于提示等本地对象
func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(fmt.Errorf("生成 UUID 失败: %w", err))
	}

	return id.String()
}
