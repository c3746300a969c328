package admin

import (
	"github.com/dep2p/go-locator/pkg/types"
)

// AdapterRequest 注册适配器请求
type AdapterRequest struct {
	ReplicaGroupID string           `json:"replica_group_id,omitempty"`
	Endpoints      []types.Endpoint `json:"endpoints"`
}

// AdapterResponse 适配器查询结果
type AdapterResponse struct {
	AdapterID      string           `json:"adapter_id"`
	Endpoints      []types.Endpoint `json:"endpoints"`
	IsReplicaGroup bool             `json:"is_replica_group"`
}

// StatsResponse 目录统计
type StatsResponse struct {
	Adapters      int `json:"adapters"`
	ReplicaGroups int `json:"replica_groups"`
	Objects       int `json:"objects"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}
