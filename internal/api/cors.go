// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS admits cross-origin requests from origins only. Requests from any
// other origin are rejected with 403; same-origin requests always pass.
func CORS(origins []string) (gin.HandlerFunc, error) {
	config := cors.Config{
		AllowOrigins:    origins,
		AllowOriginFunc: func(string) bool { return false },
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return cors.New(config), nil
}
