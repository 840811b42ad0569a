package config

import "petstore/pkg/config"

// AlipayConfig 支付宝配置
type AlipayConfig struct {
	AppID        string
	PrivateKey   string
	PublicKey    string
	NotifyURL    string
	ReturnURL    string
	IsProduction bool
}

// WechatConfig 微信支付配置
type WechatConfig struct {
	AppID      string
	MchID      string
	SerialNo   string
	PrivateKey string
	APIv3Key   string
	NotifyURL  string
}

func init() {
	config.Add("payment", func() map[string]interface{} {
		return map[string]interface{}{

			// 同步跳转与异步通知地址
			"return_url": config.Env("PAYMENT_RETURN_URL", ""),
			"notify_url": config.Env("PAYMENT_NOTIFY_URL", ""),

			// 支付宝
			"alipay": map[string]interface{}{
				"app_id":        config.Env("ALIPAY_APP_ID", ""),
				"private_key":   config.Env("ALIPAY_PRIVATE_KEY", ""),
				"public_key":    config.Env("ALIPAY_PUBLIC_KEY", ""),
				"is_production": config.Env("ALIPAY_IS_PRODUCTION", false),
			},

			// 微信支付（Native 扫码）
			"wechat": map[string]interface{}{
				"app_id":      config.Env("WECHAT_APP_ID", ""),
				"mch_id":      config.Env("WECHAT_MCH_ID", ""),
				"serial_no":   config.Env("WECHAT_SERIAL_NO", ""),
				"private_key": config.Env("WECHAT_PRIVATE_KEY", ""),
				"apiv3_key":   config.Env("WECHAT_APIV3_KEY", ""),
			},
		}
	})
}

// LoadAlipayConfig 读取支付宝配置
func LoadAlipayConfig() AlipayConfig {
	return AlipayConfig{
		AppID:        config.GetString("payment.alipay.app_id"),
		PrivateKey:   config.GetString("payment.alipay.private_key"),
		PublicKey:    config.GetString("payment.alipay.public_key"),
		NotifyURL:    config.GetString("payment.notify_url"),
		ReturnURL:    config.GetString("payment.return_url"),
		IsProduction: config.GetBool("payment.alipay.is_production"),
	}
}

// LoadWechatConfig 读取微信支付配置
func LoadWechatConfig() WechatConfig {
	return WechatConfig{
		AppID:      config.GetString("payment.wechat.app_id"),
		MchID:      config.GetString("payment.wechat.mch_id"),
		SerialNo:   config.GetString("payment.wechat.serial_no"),
		PrivateKey: config.GetString("payment.wechat.private_key"),
		APIv3Key:   config.GetString("payment.wechat.apiv3_key"),
		NotifyURL:  config.GetString("payment.notify_url"),
	}
}
