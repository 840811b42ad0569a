// Package config 配置信息入口
package config

// Initialize 触发本包各配置文件的 init 注册
//
// main 包通过空白导入的方式加载配置，这里提供一个显式入口，
// 便于阅读调用链。
func Initialize() {
	// 各配置项通过 init() 注册到 config.ConfigFuncs
}
