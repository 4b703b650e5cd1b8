// Package lotsizing builds the capacitated lot-sizing model with
// remanufacturing (CLSP-R) on top of core/mip.
//
// For every product p and period t the model holds integer quantities
// X (new production), X_r (remanufacturing), L (serviceable stock) and
// L_r (recoverable stock), and binary setups Gamma and Gamma_r. Stocks start
// empty. Each period balances both inventories, respects the production and
// remanufacturing capacities and forces a setup whenever the matching
// quantity is positive.
//
// In the baseline objective the remanufacturing setup cost is charged on
// Gamma, which leaves Gamma_r free of cost. SetupCostCorrected charges it on
// Gamma_r instead.
package lotsizing
