package ai

// quotesSchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
//
// Keeping it in sync with the actual ClickHouse table definitions in deploy/init.sql.
const quotesSchemaDescription = `
Database: quotes

Table: quotes
Columns:
  - id                 String    -- Quote id
  - timestamp          DateTime  -- When the quote was produced (UTC)
  - pool               String    -- Pool name, e.g. "ARENA-USDC"
  - direction          String    -- "buy" (quote asset in) or "sell" (base asset in)
  - input_amount       UInt256   -- Amount paid in, base units
  - output_amount      UInt256   -- Amount received, base units
  - min_output_amount  UInt256   -- Output after slippage tolerance
  - fee_amount         UInt256   -- Fee taken from the input, base units
  - effective_fee_bps  UInt32    -- Fee rate applied, basis points (10000 = 100%)
  - price_impact_bps   UInt32    -- Execution price vs spot price, basis points
  - prize_pool_share   UInt256   -- Part of fee_amount routed to the prize pool
  - treasury_share     UInt256   -- Remainder of fee_amount routed to the treasury
  - spot_price         UInt256   -- Quote units per base unit scaled by 1e9
  - slot               UInt64    -- Chain slot the reserves were read at
  - source             String    -- "local" or "authoritative"

Table: divergences
Columns:
  - timestamp             DateTime
  - pool                  String
  - direction             String
  - input_amount          UInt256
  - local_output          UInt256  -- Output computed locally
  - authoritative_output  UInt256  -- Output from the on-chain simulation
  - local_fee_bps         UInt32
  - authoritative_fee_bps UInt32
  - diff_bps              UInt32   -- |local - authoritative| / authoritative in bps

Notes:
  - Sells with high effective_fee_bps usually mean the anti-dump fee kicked in.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
`
