// Package rewrite decides and applies metadata rewrites. BuildPlan turns a
// parsed file plus a policy into an ordered block set, and Engine walks one
// file through the read, plan, export and write steps, folding every
// failure into a per-file Result.
package rewrite
