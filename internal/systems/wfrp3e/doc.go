// Package wfrp3e holds the shared error taxonomy and ruleset metadata for the
// Warhammer Fantasy Roleplay 3rd edition narrative dice engine.
//
// # Dice
//
// Seven special dice replace numbered dice. Each face carries a vector of
// narrative symbols rather than a number:
//   - Characteristic (d8), Fortune (d6) and Expertise (d6) dice add
//     successes, boons, righteous successes and Sigmar's comets.
//   - Conservative (d10) and Reckless (d10) stance dice trade extra
//     successes for delays or exertions and banes.
//   - Challenge (d8) and Misfortune (d6) dice add challenges, banes and
//     chaos stars.
//
// # Resolution
//
// A pool is rolled once. All symbol vectors are summed (righteous successes
// also count as ordinary successes), then successes cancel challenges and
// boons cancel banes, once, on the pool totals. Delays, exertions, comets and
// chaos stars never cancel.
//
// # Packages
//
//   - symbol: the nine-counter symbol vector and cancellation.
//   - die: die kinds, face tables and single-die rolls.
//   - term, formula, arith: the term list a roll evaluates, shorthand
//     expansion and the restricted arithmetic evaluator.
//   - pool: the mutable pool and triggered effects.
//   - roll: the single-use evaluator and its presentation export.
//   - probability, script, check: exact odds, Lua effects and YAML checks.
package wfrp3e
