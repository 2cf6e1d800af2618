// Package domain contains the core Breakneck mechanics.
//
// This package provides the pure rules logic for Breakneck's dice-pool
// system, including:
//
//   - Position and effect ladders with clamped improve/worsen steps
//   - Dice-pool sizing and outcome classification
//   - Exact outcome probability calculations
//   - Segmented clocks (harm, addiction, progress)
//   - The crew momentum economy and rally rules
//   - Consequence severity and the defensive success trade-off
//   - Trait transactions and the turn state machine
//
// Everything here is pure computation over explicit inputs. Randomness
// enters only through seeds handed to internal/core/dice, and nothing in
// this package touches persisted state directly.
package domain
