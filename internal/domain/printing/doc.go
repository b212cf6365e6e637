// Package printing holds the value objects of printable school documents:
// fee vouchers, consolidated vouchers, class voucher runs, class rosters
// and salary slips.
package printing
