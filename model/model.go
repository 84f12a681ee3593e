package model

// 仪表盘与计算服务之间的消息
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// 消息类型
const (
	MsgStart   = "start"
	MsgStop    = "stop"
	MsgStarted = "started"
	MsgRow     = "row"
	MsgDone    = "done"
	MsgStopped = "stopped"
	MsgError   = "error"
)

// 一次模拟请求：输入文件 + 用户参数
// 参数均为指针，缺失即为 nil，由 calculator 判定为 MissingInput
type RunRequest struct {
	TabFile    string `json:"tab_file"`
	WaxFile    string `json:"wax_file"`
	InputsFile string `json:"inputs_file"`

	C1        *float64 `json:"c1"`
	C2        *float64 `json:"c2"`
	C3        *float64 `json:"c3"`
	Di        *float64 `json:"di"`  // 管道初始内径, m
	Mo        *float64 `json:"mo"`  // 油质量流量, kg/s
	Pio       *float64 `json:"pio"` // 入口压力, Pa
	Toi       *float64 `json:"toi"` // 入口温度, °C
	DowMethod *string  `json:"dow_method"`
}
