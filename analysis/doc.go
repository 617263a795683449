/*
Package analysis implements the two sweeps over a raw volume: a global statistics pass
that finds the scalar range, and a block relevance pass that averages transfer function
output over each block of a regular grid.

Both passes split the flat voxel range into contiguous partitions, reduce each partition
into a private accumulator on a bounded set of goroutines, and combine the accumulators in
partition order with an associative merge (MergeStats and MergeBlockSums).  For a fixed
volume, grid, transfer function and partition count the results are deterministic.
*/
package analysis
