package config

import "petstore/pkg/config"

func init() {
	config.Add("reconcile", func() map[string]interface{} {
		return map[string]interface{}{

			// 队列键前缀
			"queue_prefix": config.Env("RECONCILE_QUEUE_PREFIX", "petstore:reconcile"),

			// 并发工作器数量
			"worker_count": config.Env("RECONCILE_WORKER_COUNT", 2),

			// 单个任务最大重试次数，超出后转入死信
			"max_retries": config.Env("RECONCILE_MAX_RETRIES", 5),

			// 重试间隔（秒）
			"retry_interval": config.Env("RECONCILE_RETRY_INTERVAL", 30),

			// 死信告警 Webhook，留空则只记录日志
			"alert_webhook": config.Env("RECONCILE_ALERT_WEBHOOK", ""),
		}
	})
}
