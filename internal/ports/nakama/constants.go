package nakama

// Nakama RPC ids the client calls.
const (
	// RpcJoinQueue enters 2-player matchmaking and blocks until a session is
	// formed, falling back to a bot opponent on timeout.
	RpcJoinQueue = "join_queue"

	// RpcLeaveQueue withdraws a waiting entry from either queue.
	RpcLeaveQueue = "leave_queue"

	// RpcJoinTournamentQueue enters 4-player tournament matchmaking with the
	// same bot fallback.
	RpcJoinTournamentQueue = "join_tournament_queue"

	// RpcSessionAction applies one game action to a session on behalf of the
	// calling user.
	RpcSessionAction = "session_action"
)
