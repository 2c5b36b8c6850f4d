package output

// DefaultAssumptions lists key modeling assumptions rendered in detailed outputs.
var DefaultAssumptions = []string{
	"Annual yield is converted to a monthly rate as (1 + a)^(1/12) - 1",
	"Payments post in the first month of each payment period",
	"Bonuses, tax credits and withdrawals post at the end of the contract year",
	"Amounts are kept exact and only rounded for display",
	"Surrender value deducts the redemption fee and any tax credit clawback",
}
