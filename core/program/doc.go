// Package program defines a declarative representation for stage-structured
// linear and mixed-integer optimization models. A Model holds named variables,
// scalar parameters, constraints and named cost expressions; it carries no
// solving logic. Models are symbolic: scenario instances are produced by
// cloning a model and overwriting its mutable parameters.
//
// Expressions are linear in the decision variables with optional bilinear
// (variable-times-variable) terms. Bilinear terms make a model nonconvex and
// are never linearized here; solvers decide what they can accept.
package program
