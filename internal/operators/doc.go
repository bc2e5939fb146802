// Package operators maps native operator overloads to Go methods and
// derives the key capabilities (ordering, hashing) a class offers to
// ordered and hash containers.
//
// Go has no operator overloading, so every eligible operator becomes a
// named method on the wrapper: operator+ becomes Add, operator+= becomes
// AddAssign, operator== becomes Equal, operator< becomes Less and
// conversion operators become Bool, Float64 and so on. Operators outside
// the eligible set are skipped with a warning.
package operators
