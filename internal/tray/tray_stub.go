//go:build stub

package tray

import "context"

type noopController struct{}

func (noopController) Stop() {}

// stub 构建（无图形环境的 CI）不创建托盘
func start(_ context.Context, _ Options) (Controller, error) {
	return noopController{}, nil
}
