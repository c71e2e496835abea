// Package linkage repairs the game reference of transactions that lost it.
package linkage
