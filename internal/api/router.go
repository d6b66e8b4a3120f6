package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册健康检查、手动触发与缓存查询路由
func RegisterRoutes(r gin.IRouter, trigger *TriggerHandler, odds *OddsHandler) {
	r.GET("/health", trigger.Health)
	r.GET("/trigger", trigger.TriggerSettle)
	r.GET("/trigger-odds-fetch", trigger.TriggerOddsFetch)
	r.GET("/odds/:eventId", odds.GetOdds)
}
