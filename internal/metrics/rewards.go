package metrics

import "strconv"

// Reward and provider metric names
const (
	ClaimsTotal             = "claims_total"
	TaskCompletionsTotal    = "task_completions_total"
	TaskRejectionsTotal     = "task_rejections_total"
	PaystackRequestsTotal   = "paystack_requests_total"
	BankDirectoryCacheTotal = "bank_directory_cache_total"
)

// RecordClaim records a claim attempt by outcome (credited, pause_triggered, paused, cooling_down).
func RecordClaim(outcome string) {
	count(ClaimsTotal, map[string]string{"outcome": outcome})
}

// RecordTaskCompletion records a rewarded task.
func RecordTaskCompletion(taskID string) {
	count(TaskCompletionsTotal, map[string]string{"task": taskID})
}

// RecordTaskRejection records a rejected task transition.
func RecordTaskRejection(operation string, reason string) {
	count(TaskRejectionsTotal, map[string]string{
		"operation": operation,
		"reason":    reason,
	})
}

// RecordPaystackRequest records an upstream call; status 0 means a transport failure.
func RecordPaystackRequest(operation string, status int) {
	count(PaystackRequestsTotal, map[string]string{
		"operation": operation,
		"status":    strconv.Itoa(status),
	})
}

// RecordBankDirectoryCache records a directory cache lookup (hit, miss, error).
func RecordBankDirectoryCache(result string) {
	count(BankDirectoryCacheTotal, map[string]string{"result": result})
}
