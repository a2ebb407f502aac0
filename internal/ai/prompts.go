package ai

const sqlPrompt = `You are an expert ClickHouse SQL generator for a trading-pool quote service.

Use ONLY these tables:
%s
Rules:
- Return one SELECT statement and nothing else: no prose, no comments.
- Filter time ranges on the timestamp column.
- Amount columns are UInt256 base units. Only divide by 10^decimals when asked for human units.
- Prefer sum, avg, count, quantile for aggregate questions.
- "top" or "biggest" means ORDER BY ... DESC with a LIMIT.
- Never write data or touch other databases.

Question:
%s
`

const summaryPrompt = `You analyse quote and fee history for constant-product trading pools.

Question:
%s

Executed SQL:
%s

Rows (JSON array, may be empty):
%s

Answer in a few short bullet points with the key numbers (fee rates in bps, counts, amounts).
If there are no rows, say no data matched. Do not echo the JSON.
`
