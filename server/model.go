package server

import "github.com/tarungka/wirerx/stream"

type ResponseModel struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type PipelineModel struct {
	Key   string               `json:"key"`
	Stats stream.PipelineStats `json:"stats"`
}

type StopPipelineModel struct {
	Key     string `json:"key"`
	Stopped bool   `json:"stopped"`
}
