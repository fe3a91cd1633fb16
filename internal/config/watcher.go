package config

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Watcher 配置热更新监听器
// 审批服务长期运行,日志级别与限流参数需要在不重启的情况下调整
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	viper     *viper.Viper
	callbacks []func(*Config)
	stopped   atomic.Bool
	logger    *logrus.Logger
}

// NewWatcher 创建配置监听器,logger 可为 nil
func NewWatcher(cfg *Config, configPath string, logger *logrus.Logger) *Watcher {
	v := viper.New()
	v.SetConfigFile(configPath)
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Watcher{current: cfg, viper: v, logger: logger}
}

// OnChange 注册配置变更回调,回调在文件变更协程中执行
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start 读取配置文件并开始监听变更
func (w *Watcher) Start() error {
	if err := w.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	w.viper.WatchConfig()
	w.viper.OnConfigChange(func(e fsnotify.Event) {
		if w.stopped.Load() {
			return
		}

		var next Config
		if err := w.viper.Unmarshal(&next); err != nil {
			w.logger.WithError(err).Warn("config reload failed, keeping previous config")
			return
		}

		w.mu.Lock()
		w.current = &next
		callbacks := make([]func(*Config), len(w.callbacks))
		copy(callbacks, w.callbacks)
		w.mu.Unlock()

		// 回调在锁外执行
		for _, callback := range callbacks {
			callback(&next)
		}
		w.logger.WithField("file", e.Name).Info("config reloaded")
	})

	return nil
}

// Stop 停止分发变更通知
func (w *Watcher) Stop() {
	w.stopped.Store(true)
}

// Current 返回最近一次成功加载的配置
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
