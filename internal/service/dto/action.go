package dto

// 客户端发往服务端的动作负载

type SubmitClueRequest struct {
	Content string `json:"content"`
}

type SubmitVoteRequest struct {
	TargetPlayerID string `json:"targetPlayerId"`
}

type SubmitGuessRequest struct {
	Guess string `json:"guess"`
}
